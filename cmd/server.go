package cmd

import (
	"soundreview/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the Sound Review HTTP server",
	Long:  `Start the HTTP server providing the public track/playlist/comment API and the admin API for uploads, playlists and credentials.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
