package app

import "github.com/vk/iconreg/internal/registry"

// modules is the list of generator modules set up for every run.
func (a *App) modules() []registry.Module {
	return []registry.Module{a.icons}
}
