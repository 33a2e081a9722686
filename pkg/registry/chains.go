package registry

import (
	"context"
	"fmt"

	"github.com/aretw0/chains/pkg/chain"
	"github.com/aretw0/chains/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Names of the actions RegisterChainActions installs.
const (
	ActionStop    = "stop"
	ActionStopAll = "stop_all"
)

type stopArgs struct {
	ID    string `mapstructure:"id"`
	Force bool   `mapstructure:"force"`
}

// RegisterChainActions installs actions that drive the chains of reg:
//
//	stop      {id, force}  stops one chain; id defaults to the calling chain
//	stop_all               stops every chain
func RegisterChainActions(r *Registry, reg *chain.Registry) {
	r.Register(ActionStop, func(_ context.Context, call Call) error {
		var args stopArgs
		if err := decodeArgs(call.Args, &args); err != nil {
			return err
		}
		if args.ID == "" {
			args.ID = call.ChainID
		}
		if !reg.Has(args.ID) {
			return fmt.Errorf("%w: %s", domain.ErrChainNotFound, args.ID)
		}
		reg.Stop(args.ID, args.Force)
		return nil
	})
	r.Register(ActionStopAll, func(_ context.Context, _ Call) error {
		reg.StopAll()
		return nil
	})
}

func decodeArgs(args map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(args); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}
