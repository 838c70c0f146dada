package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/yungbote/gamerec-backend/internal/app"
	"github.com/yungbote/gamerec-backend/internal/services"
)

func main() {
	var (
		userFlag  string
		limit     int
		boost     bool
		rebuild   bool
		syncGraph bool
		interact  string
		gameID    int64
	)
	flag.StringVar(&userFlag, "user", "", "user id (uuid)")
	flag.IntVar(&limit, "limit", services.DefaultRecommendationLimit, "number of recommendations")
	flag.BoolVar(&boost, "boost", false, "widen candidates with top genre/category affinities")
	flag.BoolVar(&rebuild, "rebuild", false, "force a behavior profile rebuild first")
	flag.BoolVar(&syncGraph, "sync-graph", false, "push the active game catalog to the graph store and exit")
	flag.StringVar(&interact, "interact", "", "record an interaction (view|like|favorite|skip|dislike) for -game")
	flag.Int64Var(&gameID, "game", 0, "game id for -interact")
	flag.Parse()

	application, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if syncGraph {
		n, err := application.SyncGraphCatalog(ctx)
		if err != nil {
			fmt.Printf("sync graph: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("synced %d games\n", n)
		return
	}

	userID, err := uuid.Parse(strings.TrimSpace(userFlag))
	if err != nil || userID == uuid.Nil {
		fmt.Println("-user must be a valid uuid")
		os.Exit(2)
	}

	if interact != "" {
		row, err := application.Services.Interactions.Record(ctx, services.RecordInteractionInput{
			UserID: userID,
			GameID: gameID,
			Type:   interact,
		})
		if err != nil {
			fmt.Printf("record interaction: %v\n", err)
			os.Exit(1)
		}
		printJSON(row)
		return
	}

	if rebuild {
		if _, err := application.Services.Analyzer.BuildOrUpdateProfile(ctx, userID, true); err != nil {
			fmt.Printf("rebuild profile: %v\n", err)
			os.Exit(1)
		}
	}

	res, err := application.Services.Recommendations.GetRecommendations(ctx, services.RecommendationRequest{
		UserID: userID,
		Limit:  limit,
		Boost:  boost,
	})
	if err != nil {
		fmt.Printf("recommend: %v\n", err)
		os.Exit(1)
	}
	printJSON(res)
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("encode: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
