package gate

import (
	"context"
	"errors"
	"testing"

	"github.com/leapstack-labs/leapedit/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExec struct {
	scripts []string
	errs    []error
}

func (f *fakeExec) ExecScript(_ context.Context, script string) error {
	f.scripts = append(f.scripts, script)
	if len(f.errs) == 0 {
		return nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return err
}

type fakeRecorder struct {
	runs []Execution
	err  error
}

func (r *fakeRecorder) Record(_ context.Context, e Execution) error {
	r.runs = append(r.runs, e)
	return r.err
}

// scripted answers each confirmation with the next step.
func scripted(steps ...func(d *Draft) Decision) (Confirmer, *[]Draft) {
	var seen []Draft
	i := 0
	return ConfirmFunc(func(_ context.Context, d *Draft) (Decision, error) {
		seen = append(seen, *d)
		step := steps[i]
		i++
		return step(d), nil
	}), &seen
}

func execute(*Draft) Decision { return Execute }

func cancel(*Draft) Decision { return Cancel }

func TestRun_SucceedsFirstTime(t *testing.T) {
	exec := &fakeExec{}
	confirm, seen := scripted(execute)
	g := New(exec, confirm, WithLogger(testutil.NewTestLogger(t)))

	out, err := g.Run(context.Background(), "DROP TABLE t;", "tip")
	require.NoError(t, err)
	assert.Equal(t, Succeeded, out.Status)
	assert.Equal(t, 1, out.Attempts)
	assert.Equal(t, []string{"DROP TABLE t;"}, exec.scripts)
	assert.Equal(t, "tip", (*seen)[0].Tip)
}

func TestRun_CancelNeverExecutes(t *testing.T) {
	exec := &fakeExec{}
	confirm, _ := scripted(cancel)
	out, err := New(exec, confirm).Run(context.Background(), "DELETE FROM t;", "")
	require.NoError(t, err)
	assert.Equal(t, Cancelled, out.Status)
	assert.Equal(t, 0, out.Attempts)
	assert.Empty(t, exec.scripts)
}

func TestRun_FailureThenEditedRetry(t *testing.T) {
	boom := &ExecError{Index: 1, Statement: "UPDATE t SET x = 'a'", Cause: errors.New("column x does not exist")}
	exec := &fakeExec{errs: []error{boom}}
	rec := &fakeRecorder{}
	confirm, seen := scripted(
		execute,
		func(d *Draft) Decision {
			d.Script = "UPDATE t SET y = 'a';"
			return Execute
		},
	)

	out, err := New(exec, confirm, WithRecorder(rec)).Run(context.Background(), "UPDATE t SET x = 'a';", "")
	require.NoError(t, err)

	assert.Equal(t, Succeeded, out.Status)
	assert.Equal(t, 2, out.Attempts)
	assert.Equal(t, "UPDATE t SET y = 'a';", out.Script)
	assert.Equal(t, []string{"UPDATE t SET x = 'a';", "UPDATE t SET y = 'a';"}, exec.scripts)

	require.Len(t, *seen, 2)
	var ee *ExecError
	require.ErrorAs(t, (*seen)[1].LastErr, &ee)
	assert.Equal(t, 1, ee.Index)

	require.Len(t, rec.runs, 2)
	assert.ErrorIs(t, rec.runs[0].Err, boom)
	assert.NoError(t, rec.runs[1].Err)
	assert.Equal(t, 2, rec.runs[1].Attempt)
}

func TestRun_CancelAfterFailureIsFailed(t *testing.T) {
	cause := errors.New("permission denied")
	exec := &fakeExec{errs: []error{cause}}
	confirm, _ := scripted(execute, cancel)

	out, err := New(exec, confirm).Run(context.Background(), "DROP TABLE t;", "")
	require.NoError(t, err)
	assert.Equal(t, Failed, out.Status)
	assert.ErrorIs(t, out.Err, cause)
	assert.Equal(t, 1, out.Attempts)
}

func TestRun_AutoConfirm(t *testing.T) {
	cause := errors.New("syntax error")
	exec := &fakeExec{errs: []error{cause}}

	out, err := New(exec, AutoConfirm).Run(context.Background(), "SELEC 1;", "")
	require.NoError(t, err)
	assert.Equal(t, Failed, out.Status)
	assert.Len(t, exec.scripts, 1)
}

func TestRun_EmptyEditedScript(t *testing.T) {
	exec := &fakeExec{}
	confirm, _ := scripted(
		func(d *Draft) Decision {
			d.Script = " ;\n"
			return Execute
		},
		cancel,
	)
	out, err := New(exec, confirm).Run(context.Background(), "DROP TABLE t;", "")
	require.NoError(t, err)
	assert.Equal(t, Failed, out.Status)
	assert.ErrorIs(t, out.Err, ErrEmptyScript)
	assert.Empty(t, exec.scripts)
}

func TestRun_ConfirmerError(t *testing.T) {
	failing := ConfirmFunc(func(context.Context, *Draft) (Decision, error) {
		return Cancel, errors.New("terminal closed")
	})
	exec := &fakeExec{}
	_, err := New(exec, failing).Run(context.Background(), "DROP TABLE t;", "")
	assert.ErrorContains(t, err, "terminal closed")
	assert.Empty(t, exec.scripts)
}

func TestRun_RecorderErrorIsNotFatal(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("disk full")}
	out, err := New(&fakeExec{}, AutoConfirm, WithRecorder(rec)).Run(context.Background(), "SELECT 1;", "")
	require.NoError(t, err)
	assert.Equal(t, Succeeded, out.Status)
	assert.Len(t, rec.runs, 1)
}
