package workload

import "github.com/comfyops/comfydock/internal/api"

// ACE-Step music generation. Runs the ACE-Step v1 3.5B model with Qwen3-14B
// for lyric and prompt assistance.
func init() {
	models := []ModelSource{
		{
			Kind:          SourceHubSnapshot,
			Repo:          "ACE-Step/ACE-Step-v1-3.5B",
			Filename:      "ACE-Step-v1-3.5B",
			Dir:           "TTS",
			AllowPatterns: []string{"*.json", "*.safetensors"},
		},
	}
	models = append(models, shardedHubFiles(
		"Qwen/Qwen3-14B",
		"Qwen/Qwen/Qwen3-14B",
		8,
		"config.json",
		"tokenizer.json",
		"vocab.json",
		"merges.txt",
		"generation_config.json",
		"tokenizer_config.json",
		"model.safetensors.index.json",
	)...)

	Register(&Spec{
		Workload:     api.WorkloadACEStep,
		Description:  "ACE-Step music generation with Qwen3 prompt assistance",
		GPU:          api.GPUTierL40S,
		AppName:      "ace-step-comfyui",
		OutputVolume: "ace-step-comfyui-output",

		// Audio stack needed by the audiotools node.
		AptPackages: []string{"sox", "ffmpeg", "libportaudio2"},
		PipPackages: []string{"sounddevice", "easydict", "torch-complex"},

		// audiotools needs numpy 2.2; must land after every node install,
		// the last of which (ace-step) pulls in its own numpy.
		PostInstallPip: []string{"numpy==2.2"},

		CustomNodes: []string{"ace-step", "audiotools", "ComfyUI-Qwen3"},
		Models:      models,
	})
}
