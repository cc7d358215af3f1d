package repositories

import (
	"log/slog"
	"testing"

	"chat-client/domain"

	"github.com/mama165/sdk-go/database"
	"github.com/stretchr/testify/require"
)

func TestCredentialRepository_Lifecycle(t *testing.T) {
	req := require.New(t)
	_, _, badgerDB, blugeWriter, err := database.SetupBenchmark(database.DefaultPath)
	req.NoError(err)
	defer database.CleanupDB(badgerDB, blugeWriter)

	repository := NewCredentialRepository(badgerDB, slog.Default())

	// An empty store reads as the unauthenticated state, not an error
	pair, err := repository.Pair()
	req.NoError(err)
	req.False(pair.HasAccess())
	req.False(pair.HasRefresh())

	// Store a full pair
	saved := domain.CredentialPair{AccessToken: "access-abc", RefreshToken: "refresh-abc"}
	req.NoError(repository.SavePair(saved))
	pair, err = repository.Pair()
	req.NoError(err)
	req.Equal(saved, pair)

	// Replacing the access token must leave the refresh token intact
	req.NoError(repository.SaveAccessToken("access-next"))
	pair, err = repository.Pair()
	req.NoError(err)
	req.Equal("access-next", pair.AccessToken)
	req.Equal("refresh-abc", pair.RefreshToken)

	// Clearing returns to the unauthenticated state
	req.NoError(repository.Clear())
	pair, err = repository.Pair()
	req.NoError(err)
	req.False(pair.HasAccess())
	req.False(pair.HasRefresh())
}
