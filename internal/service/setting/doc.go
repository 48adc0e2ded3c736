// Package setting stores dashboard configuration that operators change at
// runtime: workflow engine webhook URLs and the outbound from address.
package setting
