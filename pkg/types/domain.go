// Package types holds the JSON shapes shared by the HTTP API and the CLI.
package types

// Model is a *.gguf file found in the models directory.
type Model struct {
	// File name; also accepted by POST /model/load.
	// example: tinyllama.Q4_K_M.gguf
	ID string `json:"id" example:"tinyllama.Q4_K_M.gguf"`
	// Display name.
	// example: tinyllama.Q4_K_M.gguf
	Name string `json:"name" example:"tinyllama.Q4_K_M.gguf"`
	// Absolute path to the model file on disk.
	// example: /home/user/models/llm/tinyllama.Q4_K_M.gguf
	Path string `json:"path" example:"/home/user/models/llm/tinyllama.Q4_K_M.gguf"`
	// Quantization tag parsed from the file name, if any.
	// example: Q4_K_M
	Quant string `json:"quant,omitempty" example:"Q4_K_M"`
}
