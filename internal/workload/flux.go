package workload

import "github.com/comfyops/comfydock/internal/api"

// FLUX.1-schnell image generation. The schnell checkpoint is gated and
// needs a Hugging Face token.
func init() {
	Register(&Spec{
		Workload:     api.WorkloadFlux,
		Description:  "FLUX.1-schnell text-to-image generation",
		GPU:          api.GPUTierT4,
		AppName:      "flux-comfyui",
		OutputVolume: "flux-comfyui-output",

		Models: []ModelSource{
			hubFile("comfyanonymous/flux_text_encoders", "t5xxl_fp8_e4m3fn_scaled.safetensors", "text_encoders"),
			hubFile("comfyanonymous/flux_text_encoders", "clip_l.safetensors", "text_encoders"),
			hubFileAs("Comfy-Org/Lumina_Image_2.0_Repackaged", "split_files/vae/ae.safetensors", "vae", "ae.safetensors"),
			{
				Kind:     SourceHubFile,
				Repo:     "black-forest-labs/FLUX.1-schnell",
				File:     "flux1-schnell.safetensors",
				Dir:      "unet",
				TokenKey: "HF_TOKEN",
			},
		},
	})
}
