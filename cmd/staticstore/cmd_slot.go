package main

import (
	"context"
	"fmt"
	"strconv"

	"staticstore/internal/identity"
	"staticstore/internal/plugin"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var ownerFlag int64

// setCmd writes a value into the host accessor and saves it to the slot.
var setCmd = &cobra.Command{
	Use:   "set [variable|switch] [id] [value]",
	Short: "Save a variable or switch value to the slot",
	Long: `Assigns the value to the accessor, saves it, and waits until the slot
file holds it.

Examples:
  staticstore set variable 5 42
  staticstore set switch 3 on --owner 12`,
	Args: cobra.ExactArgs(3),
	RunE: runSet,
}

// getCmd loads a value from the slot into the host accessor and prints it.
var getCmd = &cobra.Command{
	Use:   "get [variable|switch] [id]",
	Short: "Load a saved variable or switch value",
	Args:  cobra.ExactArgs(2),
	RunE:  runGet,
}

func parseRef(kindArg, idArg string) (identity.Ref, error) {
	kind, err := identity.ParseKind(kindArg)
	if err != nil {
		return identity.Ref{}, err
	}
	id, err := strconv.Atoi(idArg)
	if err != nil {
		return identity.Ref{}, fmt.Errorf("accessor id must be an integer: %w", err)
	}
	if err := identity.ValidateAccessorID(id); err != nil {
		return identity.Ref{}, err
	}
	return identity.Ref{Owner: identity.OwnerID(ownerFlag), Kind: kind, ID: id}, nil
}

// prepare loads config, opens a session, registers the owner instance and
// waits for the initial load.
func prepare(ctx context.Context, ref identity.Ref) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	sess, err := openSession(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if !ref.Owner.IsGlobal() {
		if err := sess.world.SpawnWithID(ref.Owner, identity.GlobalOwner); err != nil {
			sess.Close()
			return nil, err
		}
	}
	if err := sess.waitLoaded(ctx); err != nil {
		sess.Close()
		return nil, err
	}
	return sess, nil
}

func runSet(cmd *cobra.Command, args []string) error {
	ref, err := parseRef(args[0], args[1])
	if err != nil {
		return err
	}
	value, err := parseValue(args[2], ref.Kind == identity.Switch)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	sess, err := prepare(ctx, ref)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.world.WriteAccessor(ref, value); err != nil {
		return err
	}
	res, err := sess.storage.Save(ref)
	if err != nil {
		return err
	}
	if res != plugin.ResultApplied {
		return fmt.Errorf("save %s: %s", ref, res)
	}
	if err := sess.waitIdle(ctx); err != nil {
		return err
	}

	stats := sess.storage.Stats()
	logger.Info("Saved accessor",
		zap.String("key", string(ref.Key())),
		zap.Stringer("value", value),
		zap.Int("writes", stats.Writes),
		zap.Int("dir_creations", stats.DirCreations))
	fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", ref.Key(), value)
	return nil
}

func runGet(cmd *cobra.Command, args []string) error {
	ref, err := parseRef(args[0], args[1])
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	sess, err := prepare(ctx, ref)
	if err != nil {
		return err
	}
	defer sess.Close()

	res, err := sess.storage.Load(ref)
	if err != nil {
		return err
	}
	switch res {
	case plugin.ResultApplied:
		v, err := sess.world.ReadAccessor(ref)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", ref.Key(), v)
	case plugin.ResultNoSuchEntry:
		fmt.Fprintf(cmd.OutOrStdout(), "%s not saved\n", ref.Key())
	default:
		return fmt.Errorf("load %s: %s", ref, res)
	}
	return nil
}
