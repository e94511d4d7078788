/*
Package domain contains the value types of the condition-group engine.

A recipe gates its actions with condition groups. Each group combines an ordered
list of individual conditions with a boolean mode (ALL or ANY) and names the actions
it gates. This package is kept pure and free of I/O, following Hexagonal Architecture
principles: adapters and services depend on it, it depends on nothing internal.

# Key Entities

  - Group: an immutable condition group. Every update returns a new Group.
  - Condition: one predicate instance with a stable ConditionID and a server-derived BackupInfo.
  - Mode: the closed ALL/ANY enumeration, built with ParseMode.
  - ConditionDefinition: the registry record a Condition type is resolved against.
  - GroupRecord / ConditionRecord: plain, serializable snapshots of the values above.

Values are only built through constructors (NewGroup, NewCondition, ParseMode,
GroupFromRecord), so an instance in hand always satisfies its invariants.
*/
package domain
