package schema

import (
	"context"
	"sort"
	"strings"
)

// BuildActions diffs two ordered snapshots and emits the minimal,
// correctly-sequenced set of actions moving the previous state to the
// next one. Objects only in next are created in ascending next rank;
// matched objects that are not value-equal are migrated; objects only in
// previous are destroyed in descending previous rank, so dependents go
// before their dependencies. The actor captures (and, when driving a
// database, executes) every call; its ordered change list is returned.
func BuildActions(ctx context.Context, a *Actions, prev []Object, prevRanks map[string]int, next []Object, nextRanks map[string]int) ([]Change, error) {
	prevByName, err := indexByName(prev, prevRanks)
	if err != nil {
		return nil, err
	}
	nextByName, err := indexByName(next, nextRanks)
	if err != nil {
		return nil, err
	}

	sortedNext := sortByRank(nextByName, nextRanks, false)
	for _, nextObj := range sortedNext {
		prevObj, ok := prevByName[nextObj.Representation()]
		switch {
		case !ok:
			if err := nextObj.Create(ctx, a); err != nil {
				return nil, err
			}
		case !nextObj.Equal(prevObj):
			if err := nextObj.Migrate(ctx, prevObj, a); err != nil {
				return nil, err
			}
		}
	}

	// Destroy pass, reversed so objects with more dependencies go before
	// the dependencies themselves.
	sortedPrev := sortByRank(prevByName, prevRanks, true)
	for _, prevObj := range sortedPrev {
		if _, ok := nextByName[prevObj.Representation()]; !ok {
			if err := prevObj.Destroy(ctx, a); err != nil {
				return nil, err
			}
		}
	}
	return a.Changes(), nil
}

// indexByName indexes objects by representation and verifies the rank
// map keys exactly match the object set.
func indexByName(objects []Object, ranks map[string]int) (map[string]Object, error) {
	byName := make(map[string]Object, len(objects))
	for _, obj := range objects {
		byName[obj.Representation()] = obj
	}
	var mismatched []string
	for repr := range byName {
		if _, ok := ranks[repr]; !ok {
			mismatched = append(mismatched, repr)
		}
	}
	for repr := range ranks {
		if _, ok := byName[repr]; !ok {
			mismatched = append(mismatched, repr)
		}
	}
	if len(mismatched) > 0 {
		sort.Strings(mismatched)
		return nil, NewConfigError("", "ordering keys must match the object list: %s", strings.Join(mismatched, ", "))
	}
	return byName, nil
}

func sortByRank(byName map[string]Object, ranks map[string]int, descending bool) []Object {
	objects := make([]Object, 0, len(byName))
	for _, obj := range byName {
		objects = append(objects, obj)
	}
	sort.Slice(objects, func(i, j int) bool {
		ri, rj := ranks[objects[i].Representation()], ranks[objects[j].Representation()]
		if descending {
			return ri > rj
		}
		return ri < rj
	})
	return objects
}
