// Package session owns the single local model of the process.
//
// A Session moves between Unloaded, Loading and Loaded. Status reads
// (IsLoaded, Info, LastError) are atomic and never wait behind a load or a
// generation. Generations are admitted through a one-slot channel, so at most
// one runs against the engine at a time; a second caller waits for the slot,
// or fails with ErrBusy once MaxWait elapses when MaxWait is set.
//
// Chat history is append-only between ClearHistory calls. Only the most
// recent HistoryWindow turns are rendered into a chat prompt.
package session
