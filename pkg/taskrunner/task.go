package taskrunner

// Parameters is the default read-only input mapping shared by every task in a run.
type Parameters map[string]string

// TitleFunc computes a task label from the live parameters, state and forwarded arguments.
type TitleFunc[P any, C any] func(parameters P, state *C, arguments []any) (string, error)

// SkipFunc reports whether a task should be skipped for the given parameters.
type SkipFunc[P any] func(parameters P) bool

// SubRunner executes the children of a branch task in order, forwarding arguments to each
// child. It returns a *ChildFailureError when any child failed.
type SubRunner func(arguments ...any) error

// Action is the unit of work of a task: either a LeafAction or a BranchAction.
type Action[P any, C any] interface {
	actionKind() actionKind
}

// LeafAction is the action of a task without children. It receives the arguments its
// parent's SubRunner was invoked with (nil for top-level tasks).
type LeafAction[P any, C any] func(parameters P, state *C, arguments []any) error

// BranchAction is the action of a task with children. It decides whether and when to
// execute the children by invoking runChildren.
type BranchAction[P any, C any] func(parameters P, state *C, runChildren SubRunner) error

type actionKind int

const (
	actionKindLeaf actionKind = iota + 1
	actionKindBranch
)

func (LeafAction[P, C]) actionKind() actionKind {
	return actionKindLeaf
}

func (BranchAction[P, C]) actionKind() actionKind {
	return actionKindBranch
}

// Task describes one step of the tree.
//
// The label is TitleFunc's result when set, otherwise Title. A task with Children must
// carry a BranchAction and a task without Children must carry a LeafAction.
type Task[P any, C any] struct {
	Title     string
	TitleFunc TitleFunc[P, C]
	Skip      SkipFunc[P]
	Action    Action[P, C]
	Children  []Task[P, C]
}

// HasChildren reports whether the task acts as a branch.
func (task Task[P, C]) HasChildren() bool {
	return len(task.Children) > 0
}

// RunChildren returns a BranchAction that runs the children with the provided arguments and
// does nothing else.
func RunChildren[P any, C any](arguments ...any) BranchAction[P, C] {
	return func(_ P, _ *C, runChildren SubRunner) error {
		return runChildren(arguments...)
	}
}
