package service

type PersistenceServiceFacade struct {
	Redis  *RedisPersistenceService
	Json   *JsonPersistenceService
	Memory *MemoryService
}

// Get returns the preferred permanent persistence service.
// Falls back to the in-memory service when nothing else is configured.
func (facade *PersistenceServiceFacade) Get() PersistenceService {
	if facade.Redis != nil {
		return facade.Redis
	}

	if facade.Json != nil {
		return facade.Json
	}

	return facade.Memory
}
