// Package cache stores encoded query results so repeated catalog lookups do
// not spend upstream request budget.
//
// Three backends share the Cache interface:
//
//   - LocalCache keeps entries in process using github.com/patrickmn/go-cache
//   - RedisCache shares entries between instances using go-redis
//   - TwoTierCache reads through a local L1 in front of Redis
//
// Values are opaque bytes. GetJSON and SetJSON handle encoding:
//
//	c := cache.NewLocalCache(10*time.Minute, 20*time.Minute)
//	_ = cache.SetJSON(ctx, c, "search:zelda:10", games, time.Hour)
//	games, found, err := cache.GetJSON[[]models.Game](ctx, c, "search:zelda:10")
package cache
