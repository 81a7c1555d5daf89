package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/comfyops/comfydock/internal/config"
)

// NewVolumeCommand creates the volume command group.
//
// Volumes are managed host directories holding a deployment's model cache,
// model tree, and generation outputs. The group provides out-of-band access
// to them: downloading generated files and deleting whole volumes.
//
// Usage:
//
//	comfydock volume get VOLUME FILE [DEST]
//	comfydock volume delete VOLUME
//
// Parameters:
//   - globalOpts: Global options shared across commands
//
// Returns:
//   - A configured cobra.Command with the get and delete subcommands
func NewVolumeCommand(globalOpts *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "volume",
		Short: "Access and manage deployment volumes",
	}

	cmd.AddCommand(
		newVolumeGetCommand(),
		newVolumeDeleteCommand(),
	)

	return cmd
}

// newVolumeGetCommand creates the volume get subcommand.
func newVolumeGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get VOLUME FILE [DEST]",
		Short: "Copy a file out of a volume",
		Example: `  # Download a generation from the flux output volume
  comfydock volume get flux-comfyui-output ComfyUI_00001_.png`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			mountpoint, err := volumeDir(cfg, args[0])
			if err != nil {
				return err
			}

			src := filepath.Join(mountpoint, filepath.FromSlash(args[1]))
			dest := filepath.Base(args[1])
			if len(args) == 3 {
				dest = args[2]
			}

			if err := copyFile(src, dest); err != nil {
				return err
			}

			fmt.Printf("Copied %s from volume %s to %s\n", args[1], args[0], dest)
			return nil
		},
	}
}

// newVolumeDeleteCommand creates the volume delete subcommand.
func newVolumeDeleteCommand() *cobra.Command {
	force := false

	cmd := &cobra.Command{
		Use:   "delete VOLUME",
		Short: "Delete a volume and everything in it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			mountpoint, err := volumeDir(cfg, args[0])
			if err != nil {
				return err
			}

			if !force {
				ok, err := confirm(fmt.Sprintf("Delete volume %s and all its contents? [y/N] ", args[0]))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Println("Aborted.")
					return nil
				}
			}

			if err := os.RemoveAll(mountpoint); err != nil {
				return fmt.Errorf("failed to delete volume %s: %w", args[0], err)
			}

			fmt.Printf("Deleted volume %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "delete without confirmation")

	return cmd
}

// volumeDir resolves a volume name to its backing directory, rejecting
// names that escape the volumes root or name volumes that do not exist.
func volumeDir(cfg *config.Config, name string) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid volume name %q", name)
	}

	mountpoint := filepath.Join(cfg.VolumesDir(), name)
	info, err := os.Stat(mountpoint)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("no volume named %s", name)
		}
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a volume", name)
	}
	return mountpoint, nil
}

// confirm asks an interactive yes/no question on the terminal.
func confirm(prompt string) (bool, error) {
	rl, err := readline.New(prompt)
	if err != nil {
		return false, err
	}
	defer rl.Close()

	line, err := rl.Readline()
	if err != nil {
		if err == readline.ErrInterrupt || err == io.EOF {
			return false, nil
		}
		return false, err
	}

	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

// copyFile copies src to dest. Volume contents can be symbolic links into
// the shared cache; copying follows them, so the caller gets real bytes.
func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return out.Close()
}
