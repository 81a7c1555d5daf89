package workload

import "github.com/comfyops/comfydock/internal/api"

// Qwen2.5-VL vision-language inference. The 32B instruct checkpoint needs
// the large-VRAM tier.
func init() {
	Register(&Spec{
		Workload:     api.WorkloadQwen,
		Description:  "Qwen2.5-VL vision-language inference",
		GPU:          api.GPUTierA100_80GB,
		AppName:      "qwen-comfyui",
		OutputVolume: "qwen-comfyui-output",

		CustomNodes: []string{"ComfyUI-Qwen-VL", "comfyui-custom-scripts"},

		Models: shardedHubFiles(
			"Qwen/Qwen2.5-VL-32B-Instruct",
			"Qwen/Qwen-VL/Qwen2.5-VL-32B-Instruct",
			18,
			"config.json",
			"tokenizer.json",
			"vocab.json",
			"merges.txt",
			"chat_template.json",
			"preprocessor_config.json",
			"generation_config.json",
			"tokenizer_config.json",
			"model.safetensors.index.json",
		),
	})
}
