/*
Package ports defines the driven ports (interfaces) for the automator engine.

These interfaces decouple the condition group core from external implementations,
allowing the factory and the group service to work with various registries, action
sources and storage backends.

# Key Interfaces

  - ConditionRegistry: Answers whether a condition type exists and returns its definition.
  - ConditionCatalog: Lists every registered condition type (the discovery operation).
  - ActionLister: Reports the actions of a recipe.
  - IDGenerator: Mints group and condition ids.
  - GroupStore: Persists the condition groups of a recipe.
  - DistributedLocker: Provides distributed locking for concurrent recipe edits.
*/
package ports
