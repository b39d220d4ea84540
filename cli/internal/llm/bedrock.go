package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

// converseAPI abstracts the Bedrock Converse call for testing.
type converseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

type bedrockGenerator struct {
	api   converseAPI
	model string
}

// newBedrock loads the default AWS credential chain. Credentials are resolved
// lazily, so a missing profile surfaces on the first call.
func newBedrock(ctx context.Context, region, model string) (Generator, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: loading AWS config: %v", ErrUnavailable, err)
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("%w: AWS region is not set (aws_region or AWS_REGION)", ErrUnavailable)
	}
	return &bedrockGenerator{api: bedrockruntime.NewFromConfig(cfg), model: model}, nil
}

func (g *bedrockGenerator) Generate(ctx context.Context, req Request) (string, error) {
	in := &bedrockruntime.ConverseInput{
		ModelId: aws.String(pick(req, g.model)),
		Messages: []brtypes.Message{{
			Role:    brtypes.ConversationRoleUser,
			Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: req.Prompt}},
		}},
		InferenceConfig: &brtypes.InferenceConfiguration{
			Temperature: aws.Float32(float32(req.Temperature)),
		},
	}
	if req.MaxTokens > 0 {
		in.InferenceConfig.MaxTokens = aws.Int32(int32(req.MaxTokens))
	}
	if req.System != "" {
		in.System = []brtypes.SystemContentBlock{&brtypes.SystemContentBlockMemberText{Value: req.System}}
	}
	out, err := g.api.Converse(ctx, in)
	if err != nil {
		return "", classifyBedrock(err, pick(req, g.model))
	}
	msg, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok {
		return "", fmt.Errorf("bedrock: %w", ErrEmptyResponse)
	}
	var b strings.Builder
	for _, block := range msg.Value.Content {
		if text, ok := block.(*brtypes.ContentBlockMemberText); ok {
			b.WriteString(text.Value)
		}
	}
	return checkText("bedrock", b.String())
}

func classifyBedrock(err error, model string) error {
	var accessDenied *brtypes.AccessDeniedException
	if errors.As(err, &accessDenied) {
		return fmt.Errorf("bedrock: credential or permission issue: %w", err)
	}
	var notFound *brtypes.ResourceNotFoundException
	if errors.As(err, &notFound) {
		return fmt.Errorf("bedrock: model not found: %s: %w", model, err)
	}
	return fmt.Errorf("bedrock: %w", err)
}
