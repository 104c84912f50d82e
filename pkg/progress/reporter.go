package progress

// Reporter displays the start, success, failure, or skip state of one step at a time.
//
// A Reporter represents a single nesting level. Nested returns a fresh scope for the
// children of the step currently in progress; Close ends that scope with a terminating
// blank line. Begin must not be called again on the same scope until Finalize has been
// called for the previous step.
type Reporter interface {
	Begin(label string)
	Skipped()
	Done()
	Failed(message string)
	Finalize()
	Nested() Reporter
	Close()
}

// NopReporter discards every progress update.
type NopReporter struct{}

// NewNopReporter returns a Reporter that renders nothing.
func NewNopReporter() Reporter {
	return NopReporter{}
}

// Begin implements Reporter.
func (NopReporter) Begin(string) {}

// Skipped implements Reporter.
func (NopReporter) Skipped() {}

// Done implements Reporter.
func (NopReporter) Done() {}

// Failed implements Reporter.
func (NopReporter) Failed(string) {}

// Finalize implements Reporter.
func (NopReporter) Finalize() {}

// Nested implements Reporter.
func (reporter NopReporter) Nested() Reporter {
	return reporter
}

// Close implements Reporter.
func (NopReporter) Close() {}
