package nodes

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Chative-Order-Bot/bot/contract"
)

func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil || in.Session == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if err := in.Session.Validate(); err != nil {
		return GraphOutput{}, fmt.Errorf("%w: %v", contractx.ErrValidation, err)
	}
	if in.Outcome.Silent {
		return GraphOutput{Silent: true}, nil
	}

	reply := strings.TrimSpace(in.Reply)
	if reply == "" {
		return GraphOutput{}, fmt.Errorf("%w: transition produced an empty reply", contractx.ErrValidation)
	}
	return GraphOutput{Reply: reply}, nil
}
