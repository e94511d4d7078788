package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/automator/pkg/adapters/memory"
	"github.com/aretw0/automator/pkg/domain"
	"github.com/aretw0/automator/pkg/factory"
	"github.com/aretw0/automator/pkg/groups"
	"github.com/aretw0/automator/pkg/idgen"
	"github.com/aretw0/automator/pkg/locator"
	"github.com/aretw0/automator/pkg/ports"
	"github.com/aretw0/automator/pkg/validation"
	"gopkg.in/yaml.v3"
)

// DefaultFileRecipe is used when a groups file has no recipe_id.
const DefaultFileRecipe domain.RecipeID = 1

// GroupsFile is the YAML document read by validate and inspect.
//
//	recipe_id: 42
//	actions: [10, 11]
//	groups:
//	  - label: base
//	    action_ids: [10]
//	    mode: ALL
//	    conditions:
//	      - integration_code: WP
//	        condition_code: POST_STATUS
//	        fields: {status: publish}
//	  - parent_label: base
//	    ...
type GroupsFile struct {
	RecipeID domain.RecipeID `yaml:"recipe_id"`
	// Actions lists the recipe's action ids. When empty, every action id used by
	// the groups is accepted.
	Actions []domain.ActionID `yaml:"actions"`
	Groups  []map[string]any  `yaml:"groups"`
}

// ReadGroupsFile reads and parses a groups file.
func ReadGroupsFile(path string) (GroupsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return GroupsFile{}, fmt.Errorf("reading groups file: %w", err)
	}
	return ParseGroupsFile(data)
}

// ParseGroupsFile parses a groups file.
func ParseGroupsFile(data []byte) (GroupsFile, error) {
	var f GroupsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return GroupsFile{}, fmt.Errorf("%w: parsing groups file: %w", domain.ErrInvalidRequest, err)
	}
	if f.RecipeID == 0 {
		f.RecipeID = DefaultFileRecipe
	}
	if f.RecipeID < 0 {
		return GroupsFile{}, fmt.Errorf("%w: recipe_id must be positive", domain.ErrInvalidRequest)
	}
	return f, nil
}

// GroupReport is the outcome of checking one group of a file.
type GroupReport struct {
	Index int
	Label string
	Err   error
}

// OK reports whether the group built.
func (r GroupReport) OK() bool { return r.Err == nil }

// Name identifies the group in messages.
func (r GroupReport) Name() string {
	if r.Label != "" {
		return fmt.Sprintf("#%d (%s)", r.Index, r.Label)
	}
	return fmt.Sprintf("#%d", r.Index)
}

// ValidateFile builds every group of f against registry, independently of the
// others, and reports the first failure of each.
func ValidateFile(ctx context.Context, f GroupsFile, registry ports.ConditionRegistry) []GroupReport {
	decoded := make([]groups.CreateRequest, len(f.Groups))
	reports := make([]GroupReport, len(f.Groups))
	labels := make(map[string]int)

	for i, raw := range f.Groups {
		reports[i].Index = i
		req, err := groups.DecodeCreateRequest(raw)
		if err != nil {
			reports[i].Err = err
			continue
		}
		decoded[i] = req
		reports[i].Label = req.Label
		if req.Label == "" {
			continue
		}
		if first, dup := labels[req.Label]; dup {
			reports[i].Err = fmt.Errorf("%w: %q already used by group #%d", groups.ErrDuplicateLabel, req.Label, first)
			continue
		}
		labels[req.Label] = i
	}

	fac := factory.New(
		validation.New(registry, fileActions(f, decoded)),
		factory.WithIDGenerator(idgen.NewSequence("check")),
	)

	for i, req := range decoded {
		if reports[i].Err != nil {
			continue
		}
		if req.ParentLabel != "" {
			if _, ok := labels[req.ParentLabel]; !ok {
				reports[i].Err = fmt.Errorf("%w: parent_label %q", locator.ErrUnresolvedPlaceholder, req.ParentLabel)
				continue
			}
		}
		_, err := fac.CreateGroup(ctx, f.RecipeID, req.ActionIDs, req.Mode, req.Conditions,
			factory.WithPriority(req.Priority),
		)
		reports[i].Err = err
	}
	return reports
}

// LoadFile builds the whole file as one batch, resolving parent labels, and returns
// the resulting groups. Ids are deterministic ("id-1", "id-2", ...).
func LoadFile(ctx context.Context, f GroupsFile, registry ports.ConditionRegistry) ([]domain.Group, error) {
	reqs := make([]groups.CreateRequest, 0, len(f.Groups))
	for i, raw := range f.Groups {
		req, err := groups.DecodeCreateRequest(raw)
		if err != nil {
			return nil, fmt.Errorf("group %d: %w", i, err)
		}
		reqs = append(reqs, req)
	}

	fac := factory.New(
		validation.New(registry, fileActions(f, reqs)),
		factory.WithIDGenerator(idgen.NewSequence("id")),
	)
	svc := groups.New(memory.NewStore(), fac)
	if _, err := svc.CreateBatch(ctx, f.RecipeID, reqs); err != nil {
		return nil, err
	}
	return svc.List(ctx, f.RecipeID)
}

// fileActions returns the action lister for f: the declared actions, or every
// action the requests reference.
func fileActions(f GroupsFile, reqs []groups.CreateRequest) *memory.Actions {
	ids := f.Actions
	if len(ids) == 0 {
		for _, req := range reqs {
			ids = append(ids, req.ActionIDs...)
		}
	}
	actions := make([]domain.RecipeAction, 0, len(ids))
	for _, id := range ids {
		actions = append(actions, domain.RecipeAction{ID: id})
	}
	lister := memory.NewActions()
	lister.SetRecipe(f.RecipeID, actions...)
	return lister
}
