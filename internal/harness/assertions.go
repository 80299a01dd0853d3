package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion name, as written in the scenario
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s", event.Seq, event.Call)
		if event.Error != "" {
			fmt.Fprintf(&buf, " (error: %s)", event.Error)
		}
		buf.WriteByte('\n')
	}

	return buf.String()
}

// EvaluateAssertions checks every set assertion against result and returns
// the failure messages.
func EvaluateAssertions(result *Result, a Assertions) []string {
	var errs []error
	st := result.State

	if a.Dirty != nil && *a.Dirty != st.Dirty {
		errs = append(errs, &AssertionError{
			Type:     "dirty",
			Expected: fmt.Sprint(*a.Dirty),
			Actual:   fmt.Sprint(st.Dirty),
			Trace:    result.Trace,
		})
	}
	if a.Stale != nil && *a.Stale != st.Stale {
		errs = append(errs, &AssertionError{
			Type:     "stale",
			Expected: fmt.Sprint(*a.Stale),
			Actual:   fmt.Sprint(st.Stale),
			Trace:    result.Trace,
		})
	}
	if a.PendingDeletes != nil {
		errs = append(errs, listEqual("pending_deletes", *a.PendingDeletes, st.PendingDeletes, result.Trace))
	}
	if a.RemoteTitles != nil {
		errs = append(errs, listEqual("remote_titles", *a.RemoteTitles, st.RemoteTitles, result.Trace))
	}
	if a.CallOrder != nil {
		errs = append(errs, listEqual("call_order", *a.CallOrder, result.Methods(), result.Trace))
	}
	if a.CommitError != nil && *a.CommitError != st.CommitError {
		errs = append(errs, &AssertionError{
			Type:     "commit_error",
			Expected: quoteOrNone(*a.CommitError),
			Actual:   quoteOrNone(st.CommitError),
			Trace:    result.Trace,
		})
	}

	var msgs []string
	for _, err := range errs {
		if err != nil {
			msgs = append(msgs, err.Error())
		}
	}
	return msgs
}

// listEqual compares exact lists; nil and empty are the same.
func listEqual(name string, want, got []string, trace []TraceEvent) error {
	if slices.Equal(want, got) || (len(want) == 0 && len(got) == 0) {
		return nil
	}
	return &AssertionError{
		Type:     name,
		Expected: fmt.Sprintf("%q", want),
		Actual:   fmt.Sprintf("%q", got),
		Trace:    trace,
	}
}

func quoteOrNone(s string) string {
	if s == "" {
		return "none"
	}
	return fmt.Sprintf("%q", s)
}
