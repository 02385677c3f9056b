// Package intake persists uploaded audio payloads to durable storage.
//
// Plain audio files land in the permanent upload directory under generated
// collision-free names; zip archives are staged and their allowed members
// extracted into fresh temporary directories under the staging root. The
// per-batch file ceiling is enforced all-or-nothing: exceeding it removes
// every file written during the attempt.
package intake
