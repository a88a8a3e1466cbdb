// Package catalog provides the product catalog a shop is seeded with on start.
// The built-in catalog holds four sample products. A custom catalog can be loaded
// from a yaml file, see File for the layout.
package catalog
