/*
Package groups implements the condition group service of a recipe.

It orchestrates the core packages around a persistent store: every mutation loads
the recipe's collection, applies a pure locator transform to values built by the
factory, and saves the result while holding the recipe lock. Locks are reference
counted in process and can be backed by a distributed locker across replicas.
*/
package groups
