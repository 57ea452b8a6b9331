package types

// Model describes one entry of the model registry.
type Model struct {
	// Registry key clients send as "model".
	// example: allenai/tk-instruct-3b-def
	ID string `json:"id" example:"allenai/tk-instruct-3b-def"`
	// Connector family serving the model (huggingface, llama, openai).
	// example: huggingface
	Source string `json:"source" example:"huggingface"`
	// Pipeline task, when known.
	// example: text2text-generation
	Task string `json:"task,omitempty" example:"text2text-generation"`
	// Absolute path of a local model file.
	// example: /home/user/models/TinyLlama.Q4_K_M.gguf
	Path string `json:"path,omitempty" example:"/home/user/models/TinyLlama.Q4_K_M.gguf"`
}
