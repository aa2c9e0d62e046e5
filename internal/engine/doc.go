// Package engine wires the registry, encoder, renderer and calibration
// generator into the two request pipelines: resolve, encode and render for
// payloads, and calibrate then render for alignment sheets.
//
// An Engine holds only the frozen registry, so one value serves any number
// of concurrent callers. It never logs and never retries; every failure is
// returned as a *model.EngineError carrying its kind and field.
package engine
