/*
Package automator is the condition group engine of a workflow automation platform.

A recipe owns triggers and actions. Actions may be gated by condition groups: rule
sets that combine individual conditions with ALL or ANY and must hold before the
action runs. This module builds, validates and edits those groups. It does not
evaluate them.

# Concept

Raw, untrusted configuration goes through the Factory, which checks it against a
ConditionRegistry and an ActionLister and returns immutable domain values. Edits are
pure copy-on-write functions over a recipe's collection (pkg/locator). The
groups.Service ties both to a GroupStore, serializing edits of one recipe.

# Key Features

  - Fail-fast construction: a group is returned only when every condition builds.
  - Server-derived display names: every condition carries a never-empty dynamic name.
  - Referential integrity: removing an action unlinks it from every group.
  - Pluggable ports: memory, Loam and Redis adapters, HTTP and MCP transports.

# Usage

Initialize the engine with a directory of condition definitions (read with Loam), or
inject a registry:

	package main

	import (
		"context"
		"log"

		"github.com/aretw0/automator"
		"github.com/aretw0/automator/pkg/adapters/memory"
		"github.com/aretw0/automator/pkg/domain"
		"github.com/aretw0/automator/pkg/groups"
	)

	func main() {
		ctx := context.Background()

		actions := memory.NewActions()
		actions.SetRecipe(42, domain.RecipeAction{ID: 10})

		eng, err := automator.New(ctx, "./conditions", automator.WithActions(actions))
		if err != nil {
			log.Fatal(err)
		}

		g, err := eng.Groups().Create(ctx, 42, groups.CreateRequest{
			ActionIDs: []domain.ActionID{10},
			Mode:      "ALL",
			Conditions: []map[string]any{{
				"integration_code": "WP",
				"condition_code":   "POST_STATUS",
				"fields":           map[string]any{"status": "publish"},
			}},
		})
		if err != nil {
			log.Fatal(err)
		}
		log.Println("created", g.ID())
	}
*/
package automator
