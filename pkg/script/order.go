package script

import (
	"github.com/leapstack-labs/leapedit/pkg/core"
	"github.com/leapstack-labs/leapedit/pkg/synth"
)

// Script order. Session variables go first so they apply to the rest of the
// batch. Object drops run before table edits and renames after them, so the
// edits still address the old name. Within a table, columns precede the
// constraints and indexes that reference them, and data comes last.
var kindOrder = map[core.EntityKind]int{
	core.KindVariable:   0,
	core.KindObject:     1,
	core.KindColumn:     2,
	core.KindConstraint: 3,
	core.KindIndex:      4,
	core.KindRow:        5,
}

// Phase order within a kind.
var phaseOrder = map[core.EntityKind][3]synth.Action{
	core.KindColumn:     {synth.ActionAlter, synth.ActionDelete, synth.ActionCreate},
	core.KindIndex:      {synth.ActionDelete, synth.ActionAlter, synth.ActionCreate},
	core.KindConstraint: {synth.ActionDelete, synth.ActionAlter, synth.ActionCreate},
	core.KindRow:        {synth.ActionDelete, synth.ActionAlter, synth.ActionCreate},
	core.KindVariable:   {synth.ActionCreate, synth.ActionAlter, synth.ActionDelete},
}

const objectRename = 1000

// columnKey names a column within its table.
type columnKey struct {
	table core.TableRef
	name  string
}

// droppedColumns collects the columns the batch drops.
func droppedColumns(reqs []synth.Request) map[columnKey]bool {
	dropped := make(map[columnKey]bool)
	for _, r := range reqs {
		if r.Kind != core.KindColumn || r.Action != synth.ActionDelete {
			continue
		}
		if old, ok := r.Old.(core.Column); ok {
			dropped[columnKey{r.Scope, old.Name}] = true
		}
	}
	return dropped
}

// renamesOntoDropped reports a column alter that takes the name of a column
// dropped in the same batch; it has to wait for the drop.
func renamesOntoDropped(r synth.Request, dropped map[columnKey]bool) bool {
	if r.Kind != core.KindColumn || r.Action != synth.ActionAlter {
		return false
	}
	old, okOld := r.Old.(core.Column)
	cur, okNew := r.New.(core.Column)
	return okOld && okNew && old.Name != cur.Name && dropped[columnKey{r.Scope, cur.Name}]
}

func rank(r synth.Request, dropped map[columnKey]bool) int {
	if r.Kind == core.KindObject && r.Action == synth.ActionAlter {
		return objectRename
	}
	if renamesOntoDropped(r, dropped) {
		// Between the column drops and the column creates.
		return kindOrder[r.Kind]*100 + 15
	}
	phase := 0
	if order, ok := phaseOrder[r.Kind]; ok {
		for i, a := range order {
			if a == r.Action {
				phase = i
			}
		}
	}
	return kindOrder[r.Kind]*100 + phase*10
}
