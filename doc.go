// Package pyfeatures detects the minor version of the Python interpreter
// available at build time and turns it into compile-time feature flags.
//
// For every minor version from [MinSupportedMinor] up to and including the
// detected one, a flag named Py_3_<minor> is produced. Build steps emit them as
// "cargo:rustc-cfg=Py_3_<minor>" directives so that code guarded by those cfg
// symbols compiles only when the interpreter provides the matching feature set.
//
// # Emit Directives
//
// A build step that writes directives to stdout and aborts on any failure:
//
//	if err := pyfeatures.DetectAndEmit(os.Stdout); err != nil {
//	    log.Fatal(err)
//	}
//
// Nothing is written when the probe fails, so a broken environment never
// produces a partial flag set.
//
// # Probe
//
// Inspect the detected version without emitting anything:
//
//	res, err := pyfeatures.ProbeWith(pyfeatures.WithInterpreter("python3"))
//	if err != nil {
//	    var pe *pyfeatures.ProbeError
//	    if errors.As(err, &pe) {
//	        log.Fatalf("%s: %s", pe.Kind, pe.Reason)
//	    }
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Flags.Names()) // [Py_3_8 Py_3_9 Py_3_10 Py_3_11]
//
// # Errors
//
// Every probe failure is a *[ProbeError]. Its Kind is [LaunchFailure] when the
// interpreter is missing or cannot be executed, and [ParseFailure] when the
// interpreter output is not a minor version in [0, 255]. errors.Is matches
// [ErrLaunch] and [ErrParse] respectively.
//
// # Testing
//
// [WithRunner] substitutes the subprocess layer, so callers can exercise their
// build logic against a fake interpreter:
//
//	fake := pyfeatures.RunnerFunc(func(string, ...string) (pyfeatures.Output, error) {
//	    return pyfeatures.Output{Stdout: []byte("11\n")}, nil
//	})
//	res, _ := pyfeatures.ProbeWith(pyfeatures.WithRunner(fake))
package pyfeatures
