package sparse

import (
	"fmt"
	"maps"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/commands"
	"github.com/leanovate/gopter/gen"
	"github.com/stretchr/testify/assert"
)

var testThingy *testing.T

// expected models a matrix as a map of key to value; keys map to
// coordinates through keyCoord, and a missing key reads as 0.
type expected struct {
	entries  map[uint]uint
	snapshot []map[uint]uint
}

type system struct {
	m        *Matrix[Coord2, uint]
	snapshot []*Matrix[Coord2, uint]
	cmdCount int
}

type xentry struct {
	Key   uint
	Value uint
}

const (
	keymax     = 9_999
	uimax      = 99_999
	nSnapshots = 5
	width      = 317
)

var (
	cmdCount = 0
	debug    = false
)

func progress(i interface{}) {
	if debug {
		fmt.Printf("%v\n", i)
	}
}

func keyCoord(key uint) Coord2 {
	return Coord2{key % width, key / width}
}

func fail(format string, args ...interface{}) *gopter.PropResult {
	fmt.Printf(format+"\n", args...)
	return &gopter.PropResult{Status: gopter.PropFalse}
}

func pass(i interface{}) *gopter.PropResult {
	progress(i)
	return &gopter.PropResult{Status: gopter.PropTrue}
}

var LenCommand = &commands.ProtoCommand{
	Name: "Len",
	RunFunc: func(s commands.SystemUnderTest) commands.Result {
		s.(*system).cmdCount++
		return s.(*system).m.Len()
	},
	NextStateFunc:    func(state commands.State) commands.State { return state },
	PreConditionFunc: func(state commands.State) bool { return true },
	PostConditionFunc: func(state commands.State, result commands.Result) *gopter.PropResult {
		if len(state.(*expected).entries) != result.(int) {
			return fail("lenPostCondition: expected=%d, actual=%d", len(state.(*expected).entries), result.(int))
		}
		return pass("Len")
	},
}

var ShapeCommand = &commands.ProtoCommand{
	Name: "Shape",
	RunFunc: func(s commands.SystemUnderTest) commands.Result {
		s.(*system).cmdCount++
		return s.(*system).m.Shape()
	},
	NextStateFunc:    func(state commands.State) commands.State { return state },
	PreConditionFunc: func(state commands.State) bool { return true },
	PostConditionFunc: func(state commands.State, result commands.Result) *gopter.PropResult {
		var shape Coord2
		for k := range state.(*expected).entries {
			c := keyCoord(k)
			shape[0] = max(shape[0], c[0]+1)
			shape[1] = max(shape[1], c[1]+1)
		}
		if shape != result.(Coord2) {
			return fail("shapePostCondition: expected=%v, actual=%v", shape, result)
		}
		return pass("Shape")
	},
}

type setCommand xentry

func (e setCommand) Run(s commands.SystemUnderTest) commands.Result {
	s.(*system).m.Set(keyCoord(e.Key), e.Value)
	s.(*system).cmdCount++
	return nil
}

func (e setCommand) NextState(state commands.State) commands.State {
	if e.Value == 0 {
		delete(state.(*expected).entries, e.Key)
	} else {
		state.(*expected).entries[e.Key] = e.Value
	}
	return state
}

func (e setCommand) PreCondition(state commands.State) bool {
	return true
}

func (e setCommand) PostCondition(state commands.State, result commands.Result) *gopter.PropResult {
	return pass(e)
}

func (e setCommand) String() string {
	return fmt.Sprintf("Set(%v, %d)", keyCoord(e.Key), e.Value)
}

var genSet = entryCommandGen(func(e xentry) commands.Command { return setCommand(e) })

type freeCommand uint

func (key freeCommand) Run(s commands.SystemUnderTest) commands.Result {
	s.(*system).m.Set(keyCoord(uint(key)), 0)
	s.(*system).cmdCount++
	return nil
}

func (key freeCommand) NextState(state commands.State) commands.State {
	delete(state.(*expected).entries, uint(key))
	return state
}

func (key freeCommand) PreCondition(state commands.State) bool {
	return true
}

func (key freeCommand) PostCondition(state commands.State, result commands.Result) *gopter.PropResult {
	return pass(key)
}

func (key freeCommand) String() string {
	return fmt.Sprintf("Free(%v)", keyCoord(uint(key)))
}

var genFree = uintCommandGen(
	func(key uint) commands.Command { return freeCommand(key) },
	func(command interface{}) uint { return uint(command.(freeCommand)) })

type getCommand uint

func (key getCommand) Run(s commands.SystemUnderTest) commands.Result {
	s.(*system).cmdCount++
	return s.(*system).m.Get(keyCoord(uint(key)))
}

func (key getCommand) NextState(state commands.State) commands.State {
	return state
}

func (key getCommand) PreCondition(state commands.State) bool {
	return true
}

func (key getCommand) PostCondition(state commands.State, result commands.Result) *gopter.PropResult {
	want := state.(*expected).entries[uint(key)]
	if want != result.(uint) {
		return fail("getPostCondition %v: expected=%d, actual=%d", keyCoord(uint(key)), want, result)
	}
	return pass(key)
}

func (key getCommand) String() string {
	return fmt.Sprintf("Get(%v)", keyCoord(uint(key)))
}

var genGet = uintCommandGen(
	func(key uint) commands.Command { return getCommand(key) },
	func(command interface{}) uint { return uint(command.(getCommand)) })

type snapshotCommand uint

func (n snapshotCommand) Run(s commands.SystemUnderTest) commands.Result {
	slot := int(n) % nSnapshots
	s.(*system).snapshot[slot] = s.(*system).m.Clone()
	return nil
}

func (n snapshotCommand) NextState(state commands.State) commands.State {
	s := state.(*expected)
	s.snapshot[int(n)%nSnapshots] = maps.Clone(s.entries)
	return s
}

func (n snapshotCommand) PreCondition(state commands.State) bool {
	return true
}

func (n snapshotCommand) PostCondition(state commands.State, result commands.Result) *gopter.PropResult {
	return pass(n)
}

func (n snapshotCommand) String() string {
	return fmt.Sprintf("Snapshot(%d)", int(n)%nSnapshots)
}

var genSnapshot = uintCommandGen(
	func(slot uint) commands.Command { return snapshotCommand(slot) },
	func(command interface{}) uint { return uint(command.(snapshotCommand)) })

type diffCommand uint

func (n diffCommand) Run(s commands.SystemUnderTest) commands.Result {
	old := s.(*system).snapshot[int(n)%nSnapshots]
	diffs := map[Coord2][2]uint{}
	err := s.(*system).m.Diff(old, func(c Coord2, value, oldValue uint) (bool, error) {
		if _, dup := diffs[c]; dup {
			return false, fmt.Errorf("%v reported twice", c)
		}
		diffs[c] = [2]uint{value, oldValue}
		return true, nil
	})
	if err != nil {
		return fmt.Errorf("diff: %w", err)
	}
	s.(*system).cmdCount++
	return diffs
}

func (n diffCommand) NextState(state commands.State) commands.State {
	return state
}

func (n diffCommand) PreCondition(state commands.State) bool {
	return state.(*expected).snapshot[int(n)%nSnapshots] != nil
}

func (n diffCommand) PostCondition(state commands.State, result commands.Result) *gopter.PropResult {
	cur := state.(*expected).entries
	old := state.(*expected).snapshot[int(n)%nSnapshots]
	diffs := map[Coord2][2]uint{}
	for k, v := range cur {
		if old[k] != v {
			diffs[keyCoord(k)] = [2]uint{v, old[k]}
		}
	}
	for k, v := range old {
		if _, ok := cur[k]; !ok {
			diffs[keyCoord(k)] = [2]uint{0, v}
		}
	}
	if err, ok := result.(error); ok {
		return fail("diffPostCondition: %v", err)
	}
	actual := result.(map[Coord2][2]uint)
	if !reflect.DeepEqual(diffs, actual) {
		assert.Equal(testThingy, diffs, actual)
		return &gopter.PropResult{Status: gopter.PropFalse}
	}
	return pass(n)
}

func (n diffCommand) String() string {
	return fmt.Sprintf("Diff(%d)", int(n)%nSnapshots)
}

var genDiff = uintCommandGen(
	func(slot uint) commands.Command { return diffCommand(slot) },
	func(command interface{}) uint { return uint(command.(diffCommand)) })

// equalCommand compares the matrix with a snapshot both with Equal and by
// Digest.
type equalCommand uint

func (n equalCommand) Run(s commands.SystemUnderTest) commands.Result {
	old := s.(*system).snapshot[int(n)%nSnapshots]
	m := s.(*system).m
	s.(*system).cmdCount++
	return [2]bool{m.Equal(old), m.Digest() == old.Digest()}
}

func (n equalCommand) NextState(state commands.State) commands.State {
	return state
}

func (n equalCommand) PreCondition(state commands.State) bool {
	return state.(*expected).snapshot[int(n)%nSnapshots] != nil
}

func (n equalCommand) PostCondition(state commands.State, result commands.Result) *gopter.PropResult {
	want := maps.Equal(state.(*expected).entries, state.(*expected).snapshot[int(n)%nSnapshots])
	actual := result.([2]bool)
	if actual[0] != want || actual[1] != want {
		return fail("equalPostCondition: expected=%v, equal=%v, same digest=%v", want, actual[0], actual[1])
	}
	return pass(n)
}

func (n equalCommand) String() string {
	return fmt.Sprintf("Equal(%d)", int(n)%nSnapshots)
}

var genEqual = uintCommandGen(
	func(slot uint) commands.Command { return equalCommand(slot) },
	func(command interface{}) uint { return uint(command.(equalCommand)) })

func entryCommandGen(toCommand func(xentry) commands.Command) gopter.Gen {
	return gen.Struct(reflect.TypeOf(&xentry{}), map[string]gopter.Gen{
		"Key":   gen.UIntRange(0, keymax),
		"Value": gen.UIntRange(0, uimax),
	}).Map(func(entry xentry) commands.Command {
		return toCommand(entry)
	})
}

func uintCommandGen(toCommand func(uint) commands.Command, fromCommand func(interface{}) uint) gopter.Gen {
	return gen.UIntRange(0, keymax).Map(func(value uint) commands.Command {
		return toCommand(value)
	}).WithShrinker(func(v interface{}) gopter.Shrink {
		return gen.UIntShrinker(fromCommand(v)).Map(func(value uint) commands.Command {
			return toCommand(value)
		})
	})
}

var (
	maxHeight      uint8 = 0
	matrixCommands       = &commands.ProtoCommands{
		NewSystemUnderTestFunc: func(initialState commands.State) commands.SystemUnderTest {
			m := New[Coord2](uint(0), &Options{
				BranchFactor: 3,
				DigestCache:  NewDigestCache(500),
			})
			for key, value := range initialState.(*expected).entries {
				m.Set(keyCoord(key), value)
			}
			progress("NewSystem")
			return &system{m, make([]*Matrix[Coord2, uint], nSnapshots), 0}
		},
		DestroySystemUnderTestFunc: func(s commands.SystemUnderTest) {
			if h := s.(*system).m.s.tree.height; h > maxHeight {
				maxHeight = h
			}
			cmdCount += s.(*system).cmdCount
		},
		InitialStateGen: gen.MapOf(gen.UIntRange(0, keymax), gen.UIntRange(1, uimax)).Map(func(entries map[uint]uint) *expected {
			return &expected{
				entries:  entries,
				snapshot: make([]map[uint]uint, nSnapshots),
			}
		}),
		InitialPreConditionFunc: func(state commands.State) bool {
			_ = state.(*expected)
			return true
		},
		GenCommandFunc: func(state commands.State) gopter.Gen {
			return gen.Weighted(
				[]gen.WeightedGen{
					{Weight: 100, Gen: genSet},
					{Weight: 50, Gen: genFree},
					{Weight: 100, Gen: genGet},
					{Weight: 5, Gen: genSnapshot},
					{Weight: 2, Gen: genDiff},
					{Weight: 2, Gen: genEqual},
					{Weight: 10, Gen: gen.Const(ShapeCommand)},
					{Weight: 50, Gen: gen.Const(LenCommand)},
				},
			)
		},
	}
)

func TestExerciser(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	if !testing.Short() {
		parameters.MaxSize = 2048
	}
	properties := gopter.NewProperties(parameters)
	properties.Property("matrix exerciser", commands.Prop(matrixCommands))
	testThingy = t
	properties.TestingRun(t)
	testThingy = nil
	if !t.Failed() {
		assert.GreaterOrEqual(t, int(maxHeight), 3)
		fmt.Printf("biggest tree height: %d\n", maxHeight)
		fmt.Printf("successful commands: %d\n", cmdCount)
	}
}
