package taskrunner

// ResolveTitle computes the label of task. A static title is returned unchanged; a
// TitleFunc is invoked with the live parameters, state and arguments and its error is
// returned to the caller.
func ResolveTitle[P any, C any](task Task[P, C], parameters P, state *C, arguments []any) (string, error) {
	if task.TitleFunc == nil {
		return task.Title, nil
	}
	return task.TitleFunc(parameters, state, arguments)
}
