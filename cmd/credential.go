package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"soundreview/config"
	"soundreview/core/auth"
	"soundreview/db"
	"soundreview/model"
	"soundreview/repository"

	"github.com/spf13/cobra"
)

var credentialCmd = &cobra.Command{
	Use:   "credential",
	Short: "Manage per-resource access credentials",
	Long: `Manage the Basic auth credentials that gate individual tracks and
playlists. A resource with no credentials is public; adding the first
credential makes it private.`,
}

var credentialAddCmd = &cobra.Command{
	Use:   "add <track|playlist> <uuid> <username> <password>",
	Short: "Add a credential to a track or playlist",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		resourceType, err := model.ParseResourceType(args[0])
		if err != nil {
			return err
		}

		repos, cleanup, err := openCredentialRepos()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := context.Background()
		resourceID, err := repos.locate(ctx, resourceType, args[1])
		if err != nil {
			return fmt.Errorf("failed to locate %s %s: %w", resourceType, args[1], err)
		}

		hash, err := auth.HashPassword(args[3])
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		id, err := repos.creds.CreateCredential(ctx, &model.Credential{
			ResourceType: resourceType,
			ResourceID:   resourceID,
			Username:     args[2],
			PasswordHash: hash,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Credential %d created for %s %s\n", id, resourceType, args[1])
		return nil
	},
}

var credentialListCmd = &cobra.Command{
	Use:   "list <track|playlist> <uuid>",
	Short: "List the credentials guarding a track or playlist",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		resourceType, err := model.ParseResourceType(args[0])
		if err != nil {
			return err
		}

		repos, cleanup, err := openCredentialRepos()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := context.Background()
		resourceID, err := repos.locate(ctx, resourceType, args[1])
		if err != nil {
			return fmt.Errorf("failed to locate %s %s: %w", resourceType, args[1], err)
		}

		creds, err := repos.creds.CredentialsForResource(ctx, resourceType, resourceID)
		if err != nil {
			return err
		}
		if len(creds) == 0 {
			fmt.Printf("%s %s is public (no credentials)\n", resourceType, args[1])
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tUSERNAME\tCREATED")
		for _, cred := range creds {
			fmt.Fprintf(w, "%d\t%s\t%s\n", cred.ID, cred.Username, cred.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		return w.Flush()
	},
}

var credentialRemoveCmd = &cobra.Command{
	Use:   "remove <track|playlist> <uuid> <credential-id>",
	Short: "Remove a credential from a track or playlist",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		resourceType, err := model.ParseResourceType(args[0])
		if err != nil {
			return err
		}
		credentialID, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid credential id %q", args[2])
		}

		repos, cleanup, err := openCredentialRepos()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := context.Background()
		resourceID, err := repos.locate(ctx, resourceType, args[1])
		if err != nil {
			return fmt.Errorf("failed to locate %s %s: %w", resourceType, args[1], err)
		}

		if err := repos.creds.DeleteCredential(ctx, credentialID, resourceType, resourceID); err != nil {
			return err
		}
		fmt.Printf("Credential %d removed from %s %s\n", credentialID, resourceType, args[1])
		return nil
	},
}

type credentialRepos struct {
	creds     repository.CredentialRepository
	tracks    repository.TrackRepository
	playlists repository.PlaylistRepository
}

func (r credentialRepos) locate(ctx context.Context, resourceType model.ResourceType, uuid string) (int64, error) {
	if resourceType == model.ResourcePlaylist {
		return r.playlists.IDByUUID(ctx, uuid)
	}
	return r.tracks.IDByUUID(ctx, uuid)
}

func openCredentialRepos() (credentialRepos, func(), error) {
	cfg := config.Load()

	conn, err := db.Connect(cfg)
	if err != nil {
		return credentialRepos{}, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	gormDB, err := db.ConnectGorm(cfg)
	if err != nil {
		conn.Close()
		return credentialRepos{}, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	repos := credentialRepos{
		creds:     repository.NewMySQLCredentialRepository(conn),
		tracks:    repository.NewMySQLTrackRepository(conn),
		playlists: repository.NewGormPlaylistRepository(gormDB),
	}
	return repos, func() { conn.Close() }, nil
}

func init() {
	credentialCmd.AddCommand(credentialAddCmd)
	credentialCmd.AddCommand(credentialListCmd)
	credentialCmd.AddCommand(credentialRemoveCmd)
	rootCmd.AddCommand(credentialCmd)
}
