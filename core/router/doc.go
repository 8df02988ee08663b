// Package router spreads keyed messages across a fixed number of actor
// shards. A key always maps to the same shard, so messages for one key are
// handled by one actor, in mailbox order.
//
// Keys are mapped with [ShardFromString], a seeded BLAKE2b hash. Shard
// actors are started lazily on first use; concurrent first uses of a shard
// are coalesced so it is started exactly once.
//
//	r := router.New(router.Options[*Account]{
//	    NumShards: 16,
//	    Spawn: func(shard uint32) (*actor.Ref[*Account], error) {
//	        return actor.New(&Account{}, actor.Options{}), nil
//	    },
//	})
//	balance, err := router.Ask(ctx, r, "acc-1", getBalance, GetBalance{})
package router
