// Package hcl provides the HCL implementation of config.Loader. A
// configuration file holds optional icons, build and dev blocks;
// expressions may reference env.<NAME> and root.
package hcl
