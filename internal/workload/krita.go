package workload

import "github.com/comfyops/comfydock/internal/api"

// Model set for the generative AI plugin for Krita
// (https://github.com/Acly/krita-ai-diffusion): an SDXL checkpoint plus the
// controlnet, inpaint, upscale, and IP-Adapter models the plugin drives.
func init() {
	models := []ModelSource{
		hubFile("OnomaAIResearch/Illustrious-XL-v2.0", "Illustrious-XL-v2.0.safetensors", "checkpoints"),
		hubFileAs("h94/IP-Adapter", "models/image_encoder/model.safetensors", "clip_vision", "clip-vision_vit-h.safetensors"),
	}

	// Upscaling models.
	models = append(models,
		ModelSource{
			Kind:     SourceURL,
			URL:      "https://objectstorage.us-phoenix-1.oraclecloud.com/n/ax6ygfvpvzka/b/open-modeldb-files/o/4x-NMKD-YandereNeo.pth",
			Filename: "4x-NMKD-YandereNeo.pth",
			Dir:      "upscale_models",
		},
		hubFile("Acly/Omni-SR", "OmniSR_X2_DIV2K.safetensors", "upscale_models"),
		hubFile("Acly/Omni-SR", "OmniSR_X3_DIV2K.safetensors", "upscale_models"),
		hubFile("Acly/Omni-SR", "OmniSR_X4_DIV2K.safetensors", "upscale_models"),
		hubFile("Acly/hat", "HAT_SRx4_ImageNet-pretrain.pth", "upscale_models"),
		hubFile("Acly/hat", "Real_HAT_GAN_sharper.pth", "upscale_models"),
	)

	// AnimagineXL v3.1 inpainting checkpoint, gated behind a Civitai token.
	models = append(models, ModelSource{
		Kind:     SourceURL,
		URL:      "https://civitai.com/api/download/models/480117?type=Model&format=SafeTensor&size=pruned&fp=fp16",
		Filename: "animaginexl_v31Inpainting.safetensors",
		Dir:      "inpaint",
		TokenKey: "CIVITAI_TOKEN",
	})

	// ControlNets. Most Noob checkpoints ship under the generic diffusers
	// filename and are linked under descriptive names instead.
	models = append(models,
		hubFileAs("Eugeoter/noob-sdxl-controlnet-scribble_pidinet", "diffusion_pytorch_model.fp16.safetensors", "controlnet", "noob-sdxl-controlnet-scribble_pidinet.fp16.safetensors"),
		hubFileAs("Eugeoter/noob-sdxl-controlnet-lineart_anime", "diffusion_pytorch_model.fp16.safetensors", "controlnet", "noob-sdxl-controlnet-lineart_anime.fp16.safetensors"),
		hubFileAs("Eugeoter/noob-sdxl-controlnet-softedge_hed", "diffusion_pytorch_model.fp16.safetensors", "controlnet", "noob-sdxl-controlnet-softedge_hed.fp16.safetensors"),
		hubFile("Eugeoter/noob-sdxl-controlnet-canny", "noob_sdxl_controlnet_canny.fp16.safetensors", "controlnet"),
		hubFileAs("Eugeoter/noob-sdxl-controlnet-depth_midas-v1-1", "diffusion_pytorch_model.fp16.safetensors", "controlnet", "noob-sdxl-controlnet-depth_midas-v1-1.fp16.safetensors"),
		hubFileAs("Eugeoter/noob-sdxl-controlnet-normal", "diffusion_pytorch_model.fp16.safetensors", "controlnet", "noob-sdxl-controlnet-normal.fp16.safetensors"),
		hubFile("windsingai/Illustrious-XL-openpose-test", "openpose_s6000.safetensors", "controlnet"),
		hubFileAs("Eugeoter/noob-sdxl-controlnet-tile", "diffusion_pytorch_model.fp16.safetensors", "controlnet", "noob-sdxl-controlnet-tile.fp16.safetensors"),
	)

	// IP-Adapters.
	models = append(models,
		hubFileAs("h94/IP-Adapter", "sdxl_models/image_encoder/model.safetensors", "clip_vision", "clip-vision_vit-g.safetensors"),
		hubFile("kataragi/Noob_ipadapter", "ip_adapter_Noobtest_800000.bin", "ipadapter"),
	)

	Register(&Spec{
		Workload:     api.WorkloadKrita,
		Description:  "Model set for the Krita generative AI plugin",
		GPU:          api.GPUTierT4,
		AppName:      "krita-comfyui",
		OutputVolume: "krita-comfyui-output",

		// OpenCV dependencies of the controlnet nodes.
		AptPackages: []string{"libgl1", "libglib2.0-0"},

		CustomNodes: []string{
			"comfyui_controlnet_aux",
			"comfyui_ipadapter_plus",
			"comfyui-inpaint-nodes",
			"comfyui-tooling-nodes",
		},
		Models: models,
	})
}
