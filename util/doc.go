// Package util holds small generic helpers shared across srag packages.
package util
