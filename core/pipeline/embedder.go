package pipeline

import (
	"context"
	"fmt"

	"github.com/knights-analytics/hugot"
	"github.com/pharmaintellect/ragengine/helper"
)

// LocalModelName is the sentence transformer used for local embedding.
// It produces 384-dimensional vectors.
const LocalModelName = "sentence-transformers/all-MiniLM-L6-v2"

const localModelDimension = 384

// LocalEmbedder runs the MiniLM sentence transformer in-process through a
// hugot Go session. No network calls after the initial model download.
type LocalEmbedder struct {
	session *hugot.Session
	run     func(texts []string) ([][]float32, error)
}

// NewLocalEmbedder downloads the model if needed and builds the feature
// extraction pipeline.
func NewLocalEmbedder() (*LocalEmbedder, error) {
	modelPath, err := helper.PrepareModel(LocalModelName, "onnx/model.onnx")
	if err != nil {
		return nil, helper.NewError("preparing embedding model", err)
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, helper.NewError("creating hugot session", err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "embedder-pipeline",
	}
	sentencePipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, helper.NewError("creating sentence pipeline",
				fmt.Errorf("%w (cleanup error: %v)", err, destroyErr))
		}
		return nil, helper.NewError("creating sentence pipeline", err)
	}

	return &LocalEmbedder{
		session: session,
		run: func(texts []string) ([][]float32, error) {
			result, err := sentencePipeline.RunPipeline(texts)
			if err != nil {
				return nil, err
			}
			return result.Embeddings, nil
		},
	}, nil
}

// Embed generates one vector per text, in input order.
func (e *LocalEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return nil, nil
	}

	embeddings, err := e.run(texts)
	if err != nil {
		return nil, helper.NewError("generating embeddings", err)
	}
	if len(embeddings) != len(texts) {
		return nil, helper.NewError("generating embeddings",
			fmt.Errorf("got %d embeddings for %d texts", len(embeddings), len(texts)))
	}
	return embeddings, nil
}

// Dimension returns the vector size of the local model.
func (e *LocalEmbedder) Dimension() int {
	return localModelDimension
}

// Close destroys the hugot session.
func (e *LocalEmbedder) Close() error {
	return e.session.Destroy()
}
