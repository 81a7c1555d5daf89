package workload

import "github.com/comfyops/comfydock/internal/api"

// Wan2.1 image-to-video generation, using a live-wallpaper checkpoint in
// GGUF format gated behind a Civitai token.
func init() {
	Register(&Spec{
		Workload:     api.WorkloadWan,
		Description:  "Wan2.1 image-to-video live wallpaper generation",
		GPU:          api.GPUTierL40S,
		AppName:      "wan-comfyui",
		OutputVolume: "wan-comfyui-output",

		CustomNodes: []string{"ComfyUI-GGUF", "ComfyUI-WanStartEndFramesNative"},

		Models: []ModelSource{
			hubFileAs("Comfy-Org/Wan_2.1_ComfyUI_repackaged", "split_files/text_encoders/umt5_xxl_fp8_e4m3fn_scaled.safetensors", "text_encoders", "umt5_xxl_fp8_e4m3fn_scaled.safetensors"),
			hubFileAs("Comfy-Org/Wan_2.1_ComfyUI_repackaged", "split_files/vae/wan_2.1_vae.safetensors", "vae", "wan_2.1_vae.safetensors"),
			hubFileAs("Comfy-Org/Wan_2.1_ComfyUI_repackaged", "split_files/clip_vision/clip_vision_h.safetensors", "clip_vision", "clip_vision_h.safetensors"),
			{
				Kind:     SourceURL,
				URL:      "https://civitai.com/api/download/models/1873761?type=Model&format=GGUF&size=full&fp=fp32",
				Filename: "liveWallpaperFast_i2v14B720P.gguf",
				Dir:      "diffusion_models",
				TokenKey: "CIVITAI_TOKEN",
			},
		},
	})
}
