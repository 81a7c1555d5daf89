package workload

import "fmt"

// hubFile builds a single-file manifest entry linked under its own name.
func hubFile(repo, file, dir string) ModelSource {
	return ModelSource{Kind: SourceHubFile, Repo: repo, File: file, Dir: dir}
}

// hubFileAs builds a single-file manifest entry linked under saveAs.
func hubFileAs(repo, file, dir, saveAs string) ModelSource {
	return ModelSource{Kind: SourceHubFile, Repo: repo, File: file, Dir: dir, SaveAs: saveAs}
}

// shardedHubFiles builds manifest entries for a sharded safetensors
// checkpoint: the numbered weight shards plus the repository's accompanying
// config and tokenizer files, all linked into the same directory.
func shardedHubFiles(repo, dir string, shards int, extra ...string) []ModelSource {
	sources := make([]ModelSource, 0, shards+len(extra))
	for i := 1; i <= shards; i++ {
		name := fmt.Sprintf("model-%05d-of-%05d.safetensors", i, shards)
		sources = append(sources, hubFile(repo, name, dir))
	}
	for _, name := range extra {
		sources = append(sources, hubFile(repo, name, dir))
	}
	return sources
}
