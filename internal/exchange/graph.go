// Package exchange resolves conversion rates between currencies over
// an undirected weighted graph of pairwise exchange rates.
package exchange

import "github.com/boddenberg/corebank-ledger-go/internal/domain"

// Edge is one pairwise exchange rate from the seed table.
type Edge struct {
	From string  `json:"from"`
	To   string  `json:"to"`
	Rate float64 `json:"rate"`
}

// Graph is a currency graph built once from the seed edge list. Each
// edge inserts both from->to = rate and to->from = 1/rate.
//
// Neighbor lists preserve edge insertion order: conversion uses the
// first path the depth-first search finds, so the multi-hop rate
// depends on iteration order. That is replicated behavior, kept for
// compatibility with the reference rate tables rather than upgraded to
// a shortest-path search.
type Graph struct {
	rates     map[string]map[string]float64
	neighbors map[string][]string
}

// NewGraph builds the currency graph from a list of edges.
func NewGraph(edges []Edge) *Graph {
	g := &Graph{
		rates:     make(map[string]map[string]float64),
		neighbors: make(map[string][]string),
	}
	for _, e := range edges {
		g.addEdge(e.From, e.To, e.Rate)
		g.addEdge(e.To, e.From, 1/e.Rate)
	}
	return g
}

func (g *Graph) addEdge(from, to string, rate float64) {
	if _, ok := g.rates[from]; !ok {
		g.rates[from] = make(map[string]float64)
	}
	if _, ok := g.rates[from][to]; !ok {
		g.neighbors[from] = append(g.neighbors[from], to)
	}
	g.rates[from][to] = rate
}

// Knows reports whether the currency appeared in any edge.
func (g *Graph) Knows(currency string) bool {
	_, ok := g.rates[currency]
	return ok
}

// Convert converts an amount between two currencies. The amount passes
// through unchanged when the currencies match. Conversion either
// succeeds deterministically or fails; it never partially applies.
func (g *Graph) Convert(amount float64, from, to string) (float64, error) {
	if from == to {
		return amount, nil
	}
	if !g.Knows(from) {
		return 0, &domain.ErrUnknownCurrency{Currency: from}
	}
	if !g.Knows(to) {
		return 0, &domain.ErrUnknownCurrency{Currency: to}
	}

	visited := make(map[string]bool, len(g.rates))
	var path []string
	if !g.findPath(visited, from, to, &path) {
		return 0, &domain.ErrNoConversionPath{From: from, To: to}
	}

	rate := 1.0
	for i := 0; i < len(path)-1; i++ {
		rate *= g.rates[path[i]][path[i+1]]
	}
	return amount * rate, nil
}

// findPath is a depth-first search over the neighbor lists. It marks
// currencies visited, pushes nodes onto the path and stops at the
// first time the target is reached.
func (g *Graph) findPath(visited map[string]bool, current, target string, path *[]string) bool {
	visited[current] = true
	*path = append(*path, current)

	if current == target {
		return true
	}
	for _, next := range g.neighbors[current] {
		if !visited[next] {
			if g.findPath(visited, next, target, path) {
				return true
			}
		}
	}
	*path = (*path)[:len(*path)-1]
	return false
}

// Rate returns the effective conversion rate between two currencies.
func (g *Graph) Rate(from, to string) (float64, error) {
	return g.Convert(1, from, to)
}
