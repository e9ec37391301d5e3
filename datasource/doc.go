// Copyright 2025 Tramovia
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package datasource defines the read-only query surface over the relational
// records the corpus is built from: routes, institutions, vehicles and trips.
//
// The corpus builder depends only on the Source interface; the production
// implementation lives in datasource/postgres and test doubles in
// datasource/mock.
package datasource
