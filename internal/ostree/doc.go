/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package ostree provides an order-statistics tree over uint64 keys.
// It is a treap where every node keeps the population of its subtree,
// so both updates and rank queries take O(log n) expected time.
package ostree
