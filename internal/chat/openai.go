package chat

import (
	"context"
	"fmt"
	"iter"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/KarenSyu/travel/internal/domain"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = string(openai.ChatModelGPT4oMini)

// OpenAIBackend streams turns from the OpenAI chat completions API.
type OpenAIBackend struct {
	client openai.Client
	model  string
}

// NewOpenAIBackend constructs a backend. Extra options (base URL, retries) are
// passed to the client; an empty model selects DefaultOpenAIModel.
func NewOpenAIBackend(apiKey, model string, opts ...option.RequestOption) *OpenAIBackend {
	if model == "" {
		model = DefaultOpenAIModel
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &OpenAIBackend{client: openai.NewClient(opts...), model: model}
}

// Stream implements Backend. Tool calls are emitted as soon as the accumulator
// reports them finished; any still pending when the stream ends are flushed.
func (o *OpenAIBackend) Stream(ctx context.Context, req Request) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		params := openai.ChatCompletionNewParams{
			Model:    openai.ChatModel(o.model),
			Messages: openAIMessages(req),
			Tools:    []openai.ChatCompletionToolParam{openAITool()},
		}

		stream := o.client.Chat.Completions.NewStreaming(ctx, params)
		defer stream.Close()

		acc := openai.ChatCompletionAccumulator{}
		emitted := 0
		for stream.Next() {
			chunk := stream.Current()
			acc.AddChunk(chunk)

			if tc, ok := acc.JustFinishedToolCall(); ok {
				emitted++
				if !yield(Event{Tool: &RawToolCall{Name: tc.Name, Arguments: []byte(tc.Arguments)}}, nil) {
					return
				}
			}
			if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
				if !yield(Event{Text: chunk.Choices[0].Delta.Content}, nil) {
					return
				}
			}
		}
		if err := stream.Err(); err != nil {
			yield(Event{}, fmt.Errorf("chat.OpenAIBackend.Stream: %w: %w", domain.ErrConversation, err))
			return
		}

		if len(acc.Choices) == 0 {
			return
		}
		pending := acc.Choices[0].Message.ToolCalls
		for i := emitted; i < len(pending); i++ {
			fn := pending[i].Function
			if !yield(Event{Tool: &RawToolCall{Name: fn.Name, Arguments: []byte(fn.Arguments)}}, nil) {
				return
			}
		}
	}
}

func openAIMessages(req Request) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.History)+2)
	msgs = append(msgs, openai.SystemMessage(req.System))
	for _, m := range req.History {
		if m.Role == RoleModel {
			msgs = append(msgs, openai.AssistantMessage(m.Text))
			continue
		}
		msgs = append(msgs, openai.UserMessage(m.Text))
	}
	return append(msgs, openai.UserMessage(req.Message))
}

func openAITool() openai.ChatCompletionToolParam {
	return openai.ChatCompletionToolParam{
		Function: openai.FunctionDefinitionParam{
			Name:        ToolName,
			Description: openai.String(ToolDescription),
			Parameters:  openai.FunctionParameters(ToolParameters()),
		},
	}
}
