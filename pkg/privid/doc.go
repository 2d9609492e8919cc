// Package privid is the Go boundary to the privid biometric engine.
//
// The package owns the parts of the contract that must hold regardless of
// what the engine does internally: library lifecycle, session lifecycle,
// request marshalling, and the ownership of every buffer the engine returns.
//
// A typical program initializes once, opens a session, runs operations and
// releases every result:
//
//	if err := privid.Initialize(privid.Config{LogLevel: privid.LevelInfo}); err != nil {
//	    return err
//	}
//	defer privid.Shutdown()
//
//	s, err := privid.NewSession(ctx, []byte(`{"collections":{}}`))
//	if err != nil {
//	    return err
//	}
//	defer s.Destroy()
//
//	res, err := s.Validate(ctx, img, nil)
//	if err != nil {
//	    return err // lifecycle or input error, nothing to release
//	}
//	defer res.Release()
//	if err := res.Err(); err != nil {
//	    return err // engine reported failure, text explains why
//	}
//
// Operations return a Go error only when the call never reached the engine.
// Engine failures such as "no face detected" come back as a Result with a
// negative Status and a text payload, and still have to be released.
//
// Text and binary results are distinct types, *TextBuffer and *BinaryBuffer,
// each with its own release primitive. Releasing twice is ErrDoubleRelease.
// Binary buffers are zeroized before they are handed back to the engine.
//
// Operations on one session are serialized. Distinct sessions run
// concurrently. Shutdown waits for in-flight calls, frees any sessions still
// open and invalidates their handles.
//
// The native engine is linked with the privid_native build tag. Without it
// Initialize reports ErrNotBuilt unless Config.Engine supplies an engine,
// such as the in-memory double in package enginetest.
package privid
