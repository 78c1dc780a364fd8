// Package iocache is for persisting decoded series and run history.
package iocache

import (
	"sync"

	"github.com/huangsam/hydrocheck/internal/contract"
)

// CacheStoreManager manages the series cache and run history stores.
type CacheStoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	series       contract.CacheStore
	history      contract.HistoryStore
}

var _ contract.CacheManager = &CacheStoreManager{} // Compile-time check

// GetSeriesStore returns the decoded series CacheStore.
func (mgr *CacheStoreManager) GetSeriesStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.series
}

// GetHistoryStore returns the run HistoryStore.
func (mgr *CacheStoreManager) GetHistoryStore() contract.HistoryStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.history
}
