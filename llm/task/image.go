package task

import (
	"context"

	"github.com/dshills/llmcore/llm"
	"github.com/dshills/llmcore/llm/capability"
)

// GenerateImage generates images from a text prompt.
func GenerateImage(ctx context.Context, prompt string, cfg llm.LLMConfig, imagegen capability.ImageGenCapability, cancel *llm.CancelToken) ([]capability.GeneratedImage, error) {
	return imagegen.GenerateImage(ctx, prompt, cfg, cancel)
}
