package internal

type resultState uint8

const (
	stateContinue resultState = iota
	stateAbort
	stateFailed
)

// Result is the outcome of a hook or action.
// The zero value continues the pipeline.
type Result struct {
	errmsg any
	err    error
	errno  int
	state  resultState
}

// Continue lets the pipeline proceed.
func Continue() Result { return Result{} }

// Abort ends the pipeline. The response written so far is kept.
func Abort() Result { return Result{state: stateAbort} }

// Fail ends the pipeline with a structured failure rendered as
// {errno, errmsg}. A zero errno selects the configured defaultErrno.
func Fail(errno int, errmsg any) Result {
	return Result{state: stateFailed, errno: errno, errmsg: errmsg}
}

// Error ends the pipeline and hands err to the error handler.
// A nil err behaves like Abort.
func Error(err error) Result {
	if err == nil {
		return Abort()
	}
	return Result{state: stateFailed, err: err}
}

func (r Result) Continued() bool { return r.state == stateContinue }
func (r Result) Aborted() bool   { return r.state == stateAbort }
func (r Result) Failed() bool    { return r.state == stateFailed }

// Err returns the error carried by Error results.
func (r Result) Err() error { return r.err }

func (r Result) Errno() int  { return r.errno }
func (r Result) Errmsg() any { return r.errmsg }
