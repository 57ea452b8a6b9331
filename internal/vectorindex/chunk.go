package vectorindex

import "strings"

// Chunk splits text into pieces of at most size words. Splits happen at line
// boundaries so code keeps its layout; a single line longer than size is cut
// at word boundaries.
func Chunk(text string, size int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var (
		chunks []string
		cur    []string
		words  int
	)
	flush := func() {
		if len(cur) == 0 {
			return
		}
		if c := strings.TrimRight(strings.Join(cur, "\n"), "\n "); strings.TrimSpace(c) != "" {
			chunks = append(chunks, c)
		}
		cur, words = nil, 0
	}
	for _, line := range strings.Split(text, "\n") {
		n := len(strings.Fields(line))
		if n > size {
			flush()
			fields := strings.Fields(line)
			for len(fields) > 0 {
				end := min(size, len(fields))
				chunks = append(chunks, strings.Join(fields[:end], " "))
				fields = fields[end:]
			}
			continue
		}
		if words+n > size {
			flush()
		}
		cur = append(cur, line)
		words += n
	}
	flush()
	return chunks
}
