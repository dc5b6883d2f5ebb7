package service

import "github.com/actorhub/actorhub/pkg/db/pagination"

func paginationOf(size int) pagination.Pagination {
	return pagination.Pagination{PageSize: size}
}

func paginationWithToken(size int, token string) pagination.Pagination {
	return pagination.Pagination{PageSize: size, PageToken: token}
}
