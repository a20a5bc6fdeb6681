package llm

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/agentcore/orchestrator/internal/retry"
)

// BedrockConfig configures BedrockAdapter.
type BedrockConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Model           string
	MaxRetries      int
}

// BedrockAdapter implements IntentLLM over AWS Bedrock's Converse API.
type BedrockAdapter struct {
	client *bedrockruntime.Client
	model  string
	retry  retry.Config
}

// NewBedrockAdapter builds an adapter from cfg.
func NewBedrockAdapter(cfg BedrockConfig) (*BedrockAdapter, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	model := cfg.Model
	if model == "" {
		model = "anthropic.claude-3-sonnet-20240229-v1:0"
	}

	var awsCfg aws.Config
	var err error
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsCfg, err = config.LoadDefaultConfig(context.Background(),
			config.WithRegion(region),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken,
			)),
		)
	} else {
		awsCfg, err = config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
	}
	if err != nil {
		return nil, fmt.Errorf("llm: bedrock aws config: %w", err)
	}

	r := retry.DefaultConfig()
	if cfg.MaxRetries > 0 {
		r.MaxAttempts = cfg.MaxRetries
	}
	return &BedrockAdapter{
		client: bedrockruntime.NewFromConfig(awsCfg),
		model:  model,
		retry:  r,
	}, nil
}

// GenerateJSON sends the system/user prompt pair as a single-turn Converse
// call and returns the raw text reply.
func (a *BedrockAdapter) GenerateJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	out, res := retry.DoWithValue(ctx, a.retry, func() (string, error) {
		resp, err := a.client.Converse(ctx, &bedrockruntime.ConverseInput{
			ModelId: aws.String(a.model),
			System: []types.SystemContentBlock{
				&types.SystemContentBlockMemberText{Value: systemPrompt},
			},
			Messages: []types.Message{
				{
					Role: types.ConversationRoleUser,
					Content: []types.ContentBlock{
						&types.ContentBlockMemberText{Value: userPrompt},
					},
				},
			},
		})
		if err != nil {
			return "", fmt.Errorf("llm: bedrock converse: %w", err)
		}
		output, ok := resp.Output.(*types.ConverseOutputMemberMessage)
		if !ok {
			return "", fmt.Errorf("llm: bedrock converse: unexpected output shape")
		}
		var text string
		for _, block := range output.Value.Content {
			if tb, ok := block.(*types.ContentBlockMemberText); ok {
				text += tb.Value
			}
		}
		return text, nil
	})
	if res.Err != nil {
		return "", res.Err
	}
	return out, nil
}
