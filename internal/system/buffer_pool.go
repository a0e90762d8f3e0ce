package system

import (
	"image"
	"sync"
)

// FramePool переиспользует кадры *image.RGBA между рендером и кодировщиком,
// чтобы не создавать ~8 МБ мусора на каждый кадр видео.
type FramePool struct {
	pools map[string]*sync.Pool
	mu    sync.RWMutex
}

var globalFramePool = &FramePool{
	pools: make(map[string]*sync.Pool),
}

// GetFrame возвращает кадр нужного размера из пула или создает новый.
// Содержимое кадра не обнуляется: рендер обязан перезаписать его целиком.
func GetFrame(rect image.Rectangle) *image.RGBA {
	return globalFramePool.Get(rect)
}

// PutFrame возвращает кадр в пул после записи в кодировщик.
func PutFrame(img *image.RGBA) {
	globalFramePool.Put(img)
}

func (p *FramePool) Get(rect image.Rectangle) *image.RGBA {
	key := rect.String()
	p.mu.RLock()
	pool, exists := p.pools[key]
	p.mu.RUnlock()

	if !exists {
		p.mu.Lock()
		pool, exists = p.pools[key]
		if !exists {
			pool = &sync.Pool{
				New: func() interface{} {
					return image.NewRGBA(rect)
				},
			}
			p.pools[key] = pool
		}
		p.mu.Unlock()
	}

	return pool.Get().(*image.RGBA)
}

func (p *FramePool) Put(img *image.RGBA) {
	if img == nil {
		return
	}
	key := img.Rect.String()
	p.mu.RLock()
	pool, exists := p.pools[key]
	p.mu.RUnlock()

	if exists {
		pool.Put(img)
	}
}
