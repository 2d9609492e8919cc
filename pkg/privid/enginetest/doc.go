// Package enginetest provides a deterministic in-memory engine for tests and
// examples.
//
// Engine implements engine.Engine without any models. Its answers are
// derived from simple pixel statistics so results are reproducible:
//
//   - an image whose pixels are all equal contains no face
//   - an image wider than it is tall contains a document
//   - two images compare with score 1 - meanAbsDiff/255
//   - enrollment keys users by a digest of the pixels, per collection_name
//
// Every buffer the engine hands out is tracked. Outstanding reports buffers
// not yet freed and DoubleFrees counts frees of buffers that were already
// returned, so tests can assert on ownership discipline.
//
// # Usage
//
//	eng := enginetest.New()
//	err := privid.Initialize(privid.Config{Engine: eng, ModelsDir: t.TempDir()})
//	...
//	require.Zero(t, eng.Outstanding())
//
// # Limitations
//
// The engine is designed for testing and examples only. It performs no
// biometric inference and must never back a production deployment.
package enginetest
